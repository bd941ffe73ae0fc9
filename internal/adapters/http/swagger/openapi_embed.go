package swagger

import (
	"embed"
	"io/fs"
)

// OpenAPI contains the embedded OpenAPI YAML specification.
//
//go:embed openapi.yaml
var OpenAPI []byte

//go:embed static
var static embed.FS

// RedocJS returns the embedded ReDoc standalone bundle, or nil when it has
// not been vendored with go generate.
func RedocJS() []byte {
	b, err := fs.ReadFile(static, redocBundle)
	if err != nil {
		return nil
	}
	return b
}
