package shader

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/richinsley/goshaderbridge/uniforms"
)

// Names a fragment shader may declare. Any of them may be omitted.
const (
	PositionAttribute         = "vPos"
	ResolutionUniform         = "iResolution"
	TimeUniform               = "iTime"
	InletsUniform             = "inlets"
	TexturesUniform           = "textures"
	TextureResolutionsUniform = "textureResolutions"
)

// VertexSource passes the quad's clip-space positions straight through.
const VertexSource = `#version 410
in vec3 vPos;
void main()
{
    gl_Position = vec4(vPos, 1.0);
}
`

// DefaultFragmentSource is compiled until the host supplies its own.
const DefaultFragmentSource = `#version 410
uniform vec3 iResolution;
uniform float iTime;
uniform float inlets[8];
uniform sampler2D textures[8];
uniform vec3 textureResolutions[8];
out vec4 fragColor;
void main()
{
    vec2 uv = gl_FragCoord.xy / iResolution.xy;
    fragColor = vec4(uv.x, 0.0, uv.y * sin(iTime), 1.0);
}
`

// Dialect selects the GLSL flavour of a generated preamble.
type Dialect int

const (
	// GLSL410 is desktop GLSL, compiled as-is.
	GLSL410 Dialect = iota
	// WebGL2 is GLSL ES 3.00, which must go through the translator first.
	WebGL2
)

func (d Dialect) String() string {
	switch d {
	case GLSL410:
		return "glsl410"
	case WebGL2:
		return "webgl2"
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

// ParseDialect accepts the names returned by Dialect.String.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "", "glsl410", "glsl":
		return GLSL410, nil
	case "webgl2", "essl":
		return WebGL2, nil
	}
	return GLSL410, fmt.Errorf("unknown shader dialect %q", s)
}

// Preamble declares the full uniform contract for the given dialect.
func Preamble(d Dialect) string {
	var b strings.Builder
	switch d {
	case WebGL2:
		b.WriteString("#version 300 es\nprecision highp float;\nprecision highp int;\n\n")
	default:
		b.WriteString("#version 410\n\n")
	}
	fmt.Fprintf(&b, "uniform vec3      %s;\n", ResolutionUniform)
	fmt.Fprintf(&b, "uniform float     %s;\n", TimeUniform)
	fmt.Fprintf(&b, "uniform float     %s[%d];\n", InletsUniform, uniforms.InletCount)
	fmt.Fprintf(&b, "uniform sampler2D %s[%d];\n", TexturesUniform, uniforms.TextureCount)
	fmt.Fprintf(&b, "uniform vec3      %s[%d];\n", TextureResolutionsUniform, uniforms.TextureCount)
	b.WriteString("\nout vec4 fragColor;\n")
	return b.String()
}

// mainImageWrapper adapts a Shadertoy-style entry point.
const mainImageWrapper = `
void main(void)
{
    mainImage(fragColor, gl_FragCoord.xy);
}
`

var (
	versionDirective = regexp.MustCompile(`(?m)^\s*#version\b`)
	mainDecl         = regexp.MustCompile(`\bvoid\s+main\s*\(`)
	mainImageDecl    = regexp.MustCompile(`\bvoid\s+mainImage\s*\(`)
)

// Prepare turns a bare shader body into a complete fragment shader.
// Sources carrying their own #version directive are returned unchanged.
// Otherwise the dialect preamble is prepended and, when the body defines
// mainImage but no main, a main that calls it is appended.
func Prepare(src string, d Dialect) string {
	if versionDirective.MatchString(src) {
		return src
	}
	out := Preamble(d) + "\n" + src
	if mainImageDecl.MatchString(src) && !mainDecl.MatchString(src) {
		out += mainImageWrapper
	}
	return out
}
