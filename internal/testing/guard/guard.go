// Package guard forces test mode before any application package under test
// can start runtime side effects. Import it for side effects from test files.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("PARTNER_CENTER_TEST_MODE") == "" {
			_ = os.Setenv("PARTNER_CENTER_TEST_MODE", "1")
		}
	})
}
