package service

import (
	"fmt"
	"net/http"
)

// Error is a flow failure carrying the HTTP status and the stable error code
// exposed to clients. Detail is only populated for internal faults.
type Error struct {
	Status int
	Code   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return e.Code
}

var (
	errMissingFields    = &Error{Status: http.StatusBadRequest, Code: "missing_fields"}
	errPartnerNotFound  = &Error{Status: http.StatusNotFound, Code: "partner_not_found"}
	errNoOffer          = &Error{Status: http.StatusNotFound, Code: "no_offer_configured"}
	errSchoolNotAllowed = &Error{Status: http.StatusForbidden, Code: "school_not_allowed"}
	errSoldOut          = &Error{Status: http.StatusGone, Code: "offer_sold_out"}
)

// storageErr wraps a datastore failure. The message doubles as the error
// code, matching the contract of surfacing the datastore message directly.
func storageErr(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: err.Error()}
}

// InternalErr wraps an uncaught fault with a diagnostic detail.
func InternalErr(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "server_error", Detail: err.Error()}
}
