package model

import (
	"fmt"
	"strings"
)

type Method string

type ParamType string

const (
	MethodGet Method = "GET"
	MethodPut Method = "PUT"

	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeUnknown ParamType = "unknown"
)

func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToUpper(strings.TrimSpace(s))) {
	case MethodGet:
		return MethodGet, nil
	case MethodPut:
		return MethodPut, nil
	default:
		return "", fmt.Errorf("unsupported method %q (want GET or PUT)", s)
	}
}

// Next cycles GET -> PUT -> GET.
func (m Method) Next() Method {
	if m == MethodPut {
		return MethodGet
	}
	return MethodPut
}

// AcceptsBody reports whether an editor body is sent with this method.
func (m Method) AcceptsBody() bool {
	return m == MethodPut
}

type BodyField struct {
	Name     string
	Required bool
	Type     ParamType
	Example  any
}

type BodySchema struct {
	Fields  []BodyField
	Example any
}

// Operation is a documented route of the remote API. It only feeds hints in
// the request panel; requests are never built from it.
type Operation struct {
	Method      Method
	Path        string
	Summary     string
	OperationID string
	Query       []string
	Body        *BodySchema
}
