package domain

import (
	"fmt"
	"strings"
	"time"
)

// PlaceholderAppID is the value shipped in sample configuration. It never
// identifies a real application.
const PlaceholderAppID = "YOUR_APP_ID_HERE"

// StateTransitionTrigger is the trigger label recorded for every transition
// the facade forwards.
const StateTransitionTrigger = "user-action"

// TagType declares how the replay SDK should interpret a tag value.
type TagType string

// Supported tag types.
const (
	TagTypeString      TagType = "STR"
	TagTypeLargeString TagType = "LARGE_STR"
	TagTypeNumber      TagType = "NUM"
	TagTypeDateTime    TagType = "DATETIME"
	TagTypeBool        TagType = "BOOL"
)

// TagTypes lists every supported tag type in declaration order.
func TagTypes() []TagType {
	return []TagType{TagTypeString, TagTypeLargeString, TagTypeNumber, TagTypeDateTime, TagTypeBool}
}

// ParseTagType resolves a tag type name case-insensitively.
func ParseTagType(s string) (TagType, error) {
	candidate := TagType(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range TagTypes() {
		if t == candidate {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tag type %q", s)
}

// Tag is a typed key/value annotation attached to a replay session.
// Value holds a string, a Go numeric type, a bool, or a time.Time.
type Tag struct {
	Name  string  `json:"name" yaml:"name"`
	Value any     `json:"value" yaml:"value"`
	Type  TagType `json:"type" yaml:"type"`
}

// Validate reports whether the tag value matches its declared type.
func (t Tag) Validate() error {
	if t.Name == "" {
		return &DomainError{Err: ErrInvalidTag, Code: "INVALID_TAG", Message: "replay tag name is empty"}
	}
	if !ValidateTagValue(t.Value, t.Type) {
		return NewTagError(t.Name, t.Type, t.Value)
	}
	return nil
}

// ValidateTagValue checks the Go kind of value against typ.
func ValidateTagValue(value any, typ TagType) bool {
	switch typ {
	case TagTypeString, TagTypeLargeString:
		_, ok := value.(string)
		return ok
	case TagTypeNumber:
		_, ok := NumericValue(value)
		return ok
	case TagTypeBool:
		_, ok := value.(bool)
		return ok
	case TagTypeDateTime:
		_, ok := value.(time.Time)
		return ok
	default:
		return false
	}
}

// NumericValue widens any Go numeric value to float64.
func NumericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// UserData is identity and tenant metadata associated with a replay session.
// Every field is optional.
type UserData struct {
	AppID       string `json:"appId,omitempty" yaml:"appId,omitempty"`
	UserID      string `json:"userId,omitempty" yaml:"userId,omitempty"`
	Username    string `json:"username,omitempty" yaml:"username,omitempty"`
	UserEmail   string `json:"userEmail,omitempty" yaml:"userEmail,omitempty"`
	UserRole    string `json:"userRole,omitempty" yaml:"userRole,omitempty"`
	UserStatus  string `json:"userStatus,omitempty" yaml:"userStatus,omitempty"`
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"`
	TenantID    string `json:"tenantId,omitempty" yaml:"tenantId,omitempty"`
	TenantType  string `json:"tenantType,omitempty" yaml:"tenantType,omitempty"`
	UserType    string `json:"userType,omitempty" yaml:"userType,omitempty"`
}

// Fields returns the populated fields keyed by their wire names, in
// declaration order.
func (u UserData) Fields() []UserField {
	all := []UserField{
		{"appId", u.AppID},
		{"userId", u.UserID},
		{"username", u.Username},
		{"userEmail", u.UserEmail},
		{"userRole", u.UserRole},
		{"userStatus", u.UserStatus},
		{"environment", u.Environment},
		{"tenantId", u.TenantID},
		{"tenantType", u.TenantType},
		{"userType", u.UserType},
	}
	out := all[:0]
	for _, f := range all {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}

// UserField is one populated UserData entry.
type UserField struct {
	Key   string
	Value string
}

// InitOptions carries optional build metadata for the SDK's init entry point.
type InitOptions struct {
	Release string `json:"release,omitempty" yaml:"release,omitempty"`
	Dist    string `json:"dist,omitempty" yaml:"dist,omitempty"`
}

// CheckAppID classifies an app id: nil for a usable value, otherwise
// ErrMissingAppID or ErrPlaceholderAppID.
func CheckAppID(appID string) error {
	switch strings.TrimSpace(appID) {
	case "":
		return ErrMissingAppID
	case PlaceholderAppID:
		return ErrPlaceholderAppID
	default:
		return nil
	}
}
