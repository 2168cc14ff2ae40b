package device

import (
	"fmt"
	"strings"
)

// Property value types accepted in a device specification.
const (
	TypeBool   = "bool"
	TypeInt    = "int"
	TypeUint   = "uint"
	TypeFloat  = "float"
	TypeString = "string"
)

// Info is a device listed by the cloud account.
type Info struct {
	DID    string `json:"did"`
	Name   string `json:"name"`
	Model  string `json:"model"`
	RoomID string `json:"room_id,omitempty"`
	HomeID string `json:"home_id,omitempty"`
	Online bool   `json:"online"`
}

// Method addresses a property (SIID, PIID) or an action (SIID, AIID)
// within a device's MIoT specification.
type Method struct {
	SIID int `json:"siid"`
	PIID int `json:"piid,omitempty"`
	AIID int `json:"aiid,omitempty"`
}

// ValueOption is one entry of an enumerated property.
type ValueOption struct {
	Value       any    `json:"value"`
	Description string `json:"description"`
}

// Property is a readable and/or writable device property.
type Property struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Type        string        `json:"type"`
	Access      string        `json:"rw"`
	Unit        string        `json:"unit,omitempty"`
	Range       []float64     `json:"range,omitempty"`
	ValueList   []ValueOption `json:"value-list,omitempty"`
	Method      Method        `json:"method"`
}

// Validate rejects property types outside bool, int, uint, float, string.
func (p Property) Validate() error {
	switch p.Type {
	case TypeBool, TypeInt, TypeUint, TypeFloat, TypeString:
		return nil
	default:
		return fmt.Errorf("%w: %q for %s (want bool, int, uint, float, string)",
			ErrUnsupportedPropertyType, p.Type, p.Name)
	}
}

// Readable reports whether the property can be read.
func (p Property) Readable() bool {
	return strings.Contains(p.Access, "r")
}

// Writable reports whether the property can be written.
func (p Property) Writable() bool {
	return strings.Contains(p.Access, "w")
}

// Action is an invocable device action.
type Action struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Method      Method `json:"method"`
	In          []any  `json:"in,omitempty"`
	Out         []any  `json:"out,omitempty"`
}

// Spec is the MIoT specification of a device model.
type Spec struct {
	Model      string     `json:"model"`
	Properties []Property `json:"properties"`
	Actions    []Action   `json:"actions"`
}

// PropertyRequest addresses one property read or write.
type PropertyRequest struct {
	DID   string `json:"did"`
	SIID  int    `json:"siid"`
	PIID  int    `json:"piid"`
	Value any    `json:"value,omitempty"`
}

// PropertyResult is the cloud's answer for one PropertyRequest.
// Code 0 means success.
type PropertyResult struct {
	DID   string `json:"did"`
	SIID  int    `json:"siid"`
	PIID  int    `json:"piid"`
	Value any    `json:"value,omitempty"`
	Code  int    `json:"code"`
}

// ActionRequest invokes one device action.
type ActionRequest struct {
	DID  string `json:"did"`
	SIID int    `json:"siid"`
	AIID int    `json:"aiid"`
	In   []any  `json:"in"`
}

// ActionResult is the cloud's answer for an ActionRequest.
type ActionResult struct {
	Code int   `json:"code"`
	Out  []any `json:"out,omitempty"`
}

// AuthData is an opaque Mijia cloud session produced by a login.
type AuthData struct {
	UserID       string `json:"userId"`
	CUserID      string `json:"cUserId,omitempty"`
	SSecurity    string `json:"ssecurity"`
	ServiceToken string `json:"serviceToken"`
	PassToken    string `json:"passToken,omitempty"`
	ExpireTime   int64  `json:"expireTime,omitempty"`
}

// Empty reports whether a holds no session token.
func (a AuthData) Empty() bool {
	return a.ServiceToken == ""
}

// Credentials are the account settings used when no cached session exists.
type Credentials struct {
	Username string
	Password string
	EnableQR bool
}
