package shaders

import (
	_ "embed"
)

//go:embed build_field.wgsl
var BuildFieldWGSL string
