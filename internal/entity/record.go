package entity

import (
	"math"
	"reflect"
	"sort"
	"strings"
)

// YachtRecord is the canonical, flat set of vessel attributes.
// All attributes are optional; nil means "not extracted".
type YachtRecord struct {
	// identity
	Name           *string `json:"name,omitempty"`
	FlagState      *string `json:"flagState,omitempty"`
	CallSign       *string `json:"callSign,omitempty"`
	IMONumber      *string `json:"imoNumber,omitempty"`
	MMSI           *string `json:"mmsi,omitempty"`
	OfficialNumber *string `json:"officialNumber,omitempty"`
	HomePort       *string `json:"homePort,omitempty"`
	YachtType      *string `json:"yachtType,omitempty"`

	// registration
	CertificateNumber  *string `json:"certificateNumber,omitempty"`
	RegistrationNumber *string `json:"registrationNumber,omitempty"`

	// specifications
	Builder         *string  `json:"builder,omitempty"`
	Year            *int     `json:"year,omitempty"`
	BuildLocation   *string  `json:"buildLocation,omitempty"`
	LengthOverall   *float64 `json:"lengthOverall,omitempty"`
	Beam            *float64 `json:"beam,omitempty"`
	Draft           *float64 `json:"draft,omitempty"`
	GrossTonnage    *float64 `json:"grossTonnage,omitempty"`
	NetTonnage      *float64 `json:"netTonnage,omitempty"`
	HullMaterial    *string  `json:"hullMaterial,omitempty"`
	EngineMake      *string  `json:"engineMake,omitempty"`
	EnginePower     *float64 `json:"enginePower,omitempty"`
	NumberOfEngines *int     `json:"numberOfEngines,omitempty"`
	FuelType        *string  `json:"fuelType,omitempty"`

	// owner
	OwnerName        *string `json:"ownerName,omitempty"`
	OwnerAddress     *string `json:"ownerAddress,omitempty"`
	OrganizationName *string `json:"organizationName,omitempty"`

	// operations
	MaxPassengers *int     `json:"maxPassengers,omitempty"`
	CrewCapacity  *int     `json:"crewCapacity,omitempty"`
	MaxSpeed      *float64 `json:"maxSpeed,omitempty"`

	// dates, DD-MM-YYYY
	CertificateIssueDate  *string `json:"certificateIssueDate,omitempty"`
	CertificateExpiryDate *string `json:"certificateExpiryDate,omitempty"`
	RegistrationDate      *string `json:"registrationDate,omitempty"`

	Extras map[string]string `json:"extras,omitempty"`
}

var (
	recordFieldIndex map[string]int
	recordFieldNames []string
)

func init() {
	t := reflect.TypeOf(YachtRecord{})
	recordFieldIndex = make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type.Kind() != reflect.Ptr {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		recordFieldIndex[name] = i
		recordFieldNames = append(recordFieldNames, name)
	}
}

// RecordFields returns the canonical field names in declaration order.
func RecordFields() []string {
	out := make([]string, len(recordFieldNames))
	copy(out, recordFieldNames)
	return out
}

// IsRecordField reports whether name is a canonical attribute.
func IsRecordField(name string) bool {
	_, ok := recordFieldIndex[name]
	return ok
}

// Set stores v under the canonical name. Strings go to string fields,
// numbers to numeric fields; integral float64 values are accepted for int fields.
// It reports false for unknown names and mismatched kinds.
func (r *YachtRecord) Set(name string, v any) bool {
	idx, ok := recordFieldIndex[name]
	if !ok {
		return false
	}
	field := reflect.ValueOf(r).Elem().Field(idx)
	switch field.Type().Elem().Kind() {
	case reflect.String:
		s, ok := v.(string)
		if !ok {
			return false
		}
		field.Set(reflect.ValueOf(&s))
	case reflect.Float64:
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		default:
			return false
		}
		field.Set(reflect.ValueOf(&f))
	case reflect.Int:
		var i int
		switch n := v.(type) {
		case int:
			i = n
		case float64:
			if n != math.Trunc(n) {
				return false
			}
			i = int(n)
		default:
			return false
		}
		field.Set(reflect.ValueOf(&i))
	default:
		return false
	}
	return true
}

// Get returns the value stored under the canonical name, if set.
func (r *YachtRecord) Get(name string) (any, bool) {
	idx, ok := recordFieldIndex[name]
	if !ok || r == nil {
		return nil, false
	}
	field := reflect.ValueOf(r).Elem().Field(idx)
	if field.IsNil() {
		return nil, false
	}
	return field.Elem().Interface(), true
}

// SetFields lists the canonical names that hold a value, in declaration order.
func (r *YachtRecord) SetFields() []string {
	var out []string
	for _, name := range recordFieldNames {
		if _, ok := r.Get(name); ok {
			out = append(out, name)
		}
	}
	return out
}

// ExtraKeys returns the Extras keys sorted.
func (r *YachtRecord) ExtraKeys() []string {
	keys := make([]string, 0, len(r.Extras))
	for k := range r.Extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
