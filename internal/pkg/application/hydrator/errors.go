package hydrator

import (
	"fmt"
)

type UnknownTenantError struct {
	tenant string
}

func NewUnknownTenantError(tenant string) UnknownTenantError {
	return UnknownTenantError{tenant: tenant}
}

func (ute UnknownTenantError) Error() string {
	return fmt.Sprintf("unknown tenant \"%s\"", ute.tenant)
}

type NoSourceError struct {
	typ string
}

func NewNoSourceError(typ string) NoSourceError {
	return NoSourceError{typ: typ}
}

func (nse NoSourceError) Error() string {
	return fmt.Sprintf("no source registered for type \"%s\"", nse.typ)
}

type BadRequestDataError struct {
	msg string
}

func NewBadRequestDataError(msg string) BadRequestDataError {
	return BadRequestDataError{msg: msg}
}

func (brd BadRequestDataError) Error() string {
	return brd.msg
}
