//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/naga"

	"github.com/gogpu/outline/internal/jfa"
)

//go:embed shaders/jfa_dilate.wgsl
var dilateShaderTemplate string

//go:embed shaders/jfa_init.wgsl
var initShaderTemplate string

//go:embed shaders/jfa_flood.wgsl
var floodShaderTemplate string

//go:embed shaders/jfa_composite.wgsl
var compositeShaderTemplate string

// Placeholders replaced in every source with constants shared with the CPU
// passes.
const (
	sentinelPlaceholder  = "{{SENTINEL}}"
	thresholdPlaceholder = "{{COVERAGE_THRESHOLD}}"
)

// Shader sources with the shared constants substituted.
var (
	dilateShaderSource    = withConstants(dilateShaderTemplate)
	initShaderSource      = withConstants(initShaderTemplate)
	floodShaderSource     = withConstants(floodShaderTemplate)
	compositeShaderSource = withConstants(compositeShaderTemplate)
)

// withConstants substitutes the seed sentinel and the mask coverage threshold
// so the shaders and the CPU passes agree on both.
func withConstants(src string) string {
	r := strings.NewReplacer(
		sentinelPlaceholder, strconv.FormatFloat(float64(jfa.SentinelValue), 'f', 1, 32),
		thresholdPlaceholder, strconv.Itoa(jfa.CoverageThreshold),
	)
	return r.Replace(src)
}

// shaderSource names one WGSL module.
type shaderSource struct {
	name   string
	source string
}

func shaderSources() []shaderSource {
	return []shaderSource{
		{"jfa_dilate", dilateShaderSource},
		{"jfa_init", initShaderSource},
		{"jfa_flood", floodShaderSource},
		{"jfa_composite", compositeShaderSource},
	}
}

// CompileShaders validates every shader source with naga and returns the
// SPIR-V size of each module, keyed by name.
func CompileShaders() (map[string]int, error) {
	sizes := make(map[string]int, 4)
	for _, s := range shaderSources() {
		spirv, err := naga.Compile(s.source)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", s.name, err)
		}
		sizes[s.name] = len(spirv)
	}
	return sizes, nil
}
