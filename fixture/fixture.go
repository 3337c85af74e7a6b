// Package fixture loads the externally supplied field file that integration
// tests run against.
//
// The file is named by the FIELDGO_TEST_FIELD environment variable. Tests
// that need it typically skip when Path reports a configuration error:
//
//	f, err := fixture.Load[grid]()
//	if errors.Is(err, fieldgo.ErrConfiguration) {
//	    t.Skip(err)
//	}
package fixture

import (
	"reflect"
	"sync"

	"github.com/spf13/viper"

	"github.com/hupe1980/fieldgo"
)

// EnvVar is the environment variable holding the fixture path.
const EnvVar = "FIELDGO_TEST_FIELD"

const keyTestField = "test_field"

func config() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("fieldgo")
	_ = v.BindEnv(keyTestField)
	return v
}

// Path returns the configured fixture path. A missing or empty variable is
// a *fieldgo.ConfigurationError.
func Path() (string, error) {
	path := config().GetString(keyTestField)
	if path == "" {
		return "", &fieldgo.ConfigurationError{Layer: -1, Reason: EnvVar + " is not set"}
	}
	return path, nil
}

type cacheKey struct {
	chain reflect.Type
	path  string
}

type entry struct {
	once  sync.Once
	field any
	err   error
}

var cache sync.Map // cacheKey -> *entry

// Load loads the fixture as chain B. The first successful or failed load of
// a path is cached per chain type, so concurrent tests share one field.
// An unreadable file is a *fieldgo.IOError.
func Load[B fieldgo.Layer](opts ...fieldgo.Option) (*fieldgo.Field[B], error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	key := cacheKey{chain: reflect.TypeFor[B](), path: path}
	v, _ := cache.LoadOrStore(key, &entry{})
	e := v.(*entry)
	e.once.Do(func() {
		e.field, e.err = fieldgo.LoadFile[B](path, opts...)
	})
	if e.err != nil {
		return nil, e.err
	}
	return e.field.(*fieldgo.Field[B]), nil
}
