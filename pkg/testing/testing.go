package testing

import (
	"os"
	"path"
	"runtime"
)

func init() {
	// cd to the project root before any test runs so relative paths (logs,
	// sqlite files) resolve the same way as for the server binary
	//
	//   in some_test.go,
	//   import (
	//     _ "liyu1981.xyz/aquapond-service/pkg/testing"
	//   )

	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}

	if _, found := os.LookupEnv("IOT_LOG_DIR"); !found {
		_ = os.Setenv("IOT_LOG_DIR", path.Join(dir, "logs", "test"))
	}
}
