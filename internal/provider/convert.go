package provider

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

// AsUUID accepts uuid.UUID, [16]byte and canonical strings.
func AsUUID(v any) (uuid.UUID, bool) {
	switch u := v.(type) {
	case uuid.UUID:
		return u, true
	case [16]byte:
		return uuid.UUID(u), true
	case string:
		parsed, err := uuid.Parse(u)
		return parsed, err == nil
	case []byte:
		if len(u) == 16 {
			parsed, err := uuid.FromBytes(u)
			return parsed, err == nil
		}
		parsed, err := uuid.ParseBytes(u)
		return parsed, err == nil
	}
	return uuid.UUID{}, false
}

// AsTime accepts time.Time and the civil date/time types; civil values are
// placed in UTC. A civil.Time is anchored on the zero date.
func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case civil.Date:
		return t.In(time.UTC), true
	case civil.DateTime:
		return t.In(time.UTC), true
	case civil.Time:
		return civil.DateTime{Date: civil.Date{Year: 1, Month: time.January, Day: 1}, Time: t}.In(time.UTC), true
	}
	return time.Time{}, false
}

// AsJSON returns string and []byte values untouched and encodes anything
// else.
func AsJSON(v any) (any, error) {
	switch j := v.(type) {
	case string, []byte, json.RawMessage:
		return j, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// DriverValue resolves a driver.Valuer (sql.NullTime, sql.Null[T], ...) to
// the value it would send, so conversions see the concrete type.
func DriverValue(v any) (any, error) {
	valuer, ok := v.(driver.Valuer)
	if !ok {
		return v, nil
	}
	return valuer.Value()
}
