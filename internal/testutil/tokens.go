package testutil

// ConstantTokenGenerator always returns the same execution token, so the
// same scenario produces byte-identical output across runs.
//
// Unlike engine.FixedGenerator, which hands out a finite sequence, this
// generator never exhausts. Stateless and safe for concurrent use.
type ConstantTokenGenerator struct {
	token string
}

// NewConstantTokenGenerator creates a generator for the given token. An
// empty token defaults to "test-exec-default".
func NewConstantTokenGenerator(token string) *ConstantTokenGenerator {
	if token == "" {
		token = "test-exec-default"
	}
	return &ConstantTokenGenerator{token: token}
}

// Generate returns the fixed token. Implements engine.TokenGenerator.
func (g *ConstantTokenGenerator) Generate() string {
	return g.token
}
