package gpu

// Ribbon vertex shader: one instance per ribbon, one strip vertex per
// (segment, side). Evaluates the closed Catmull-Rom spline and its slope
// from four texels of the ribbon's data-texture row.
const ribbonVertSrc = `#version 410 core

layout(location = 0) in vec2 aStrip;  // t, side
layout(location = 1) in vec4 aColor;  // rgb, alpha
layout(location = 2) in vec4 aShape;  // thickness, headX, length, waveOffset
layout(location = 3) in vec4 aMeta;   // row, pathLen, vitality, glow

uniform sampler2D uPaths;
uniform vec2 uResolution;
uniform float uWiden;
uniform float uMaxSlope;
uniform float uTailWidth;
uniform float uTaperExp;

out vec4 vColor;
out float vSide;
out float vT;
out float vGlow;

float pathAt(int row, int i) {
    return texelFetch(uPaths, ivec2(i, row), 0).r;
}

void main() {
    float t = aStrip.x;
    int row = int(aMeta.x + 0.5);
    int n = max(int(aMeta.y + 0.5), 2);

    float s = fract(aShape.w + t) * float(n);
    int idx = min(int(floor(s)), n - 1);
    float u = s - float(idx);

    float p0 = pathAt(row, (idx + n - 1) % n);
    float p1 = pathAt(row, idx);
    float p2 = pathAt(row, (idx + 1) % n);
    float p3 = pathAt(row, (idx + 2) % n);

    float a = 2.0 * p0 - 5.0 * p1 + 4.0 * p2 - p3;
    float b = -p0 + 3.0 * p1 - 3.0 * p2 + p3;
    float y = 0.5 * (2.0 * p1 + (p2 - p0) * u + a * u * u + b * u * u * u);
    float dy = 0.5 * ((p2 - p0) + 2.0 * a * u + 3.0 * b * u * u) * float(n);

    vec2 centre = vec2((aShape.y + aShape.z * (1.0 - t)) * uResolution.x, y * uResolution.y);
    vec2 tangent = vec2(-aShape.z * uResolution.x, dy * uResolution.y);
    float lim = uMaxSlope * abs(tangent.x);
    tangent.y = clamp(tangent.y, -lim, lim);
    vec2 normal = normalize(vec2(-tangent.y, tangent.x));

    float taper = uTailWidth + (1.0 - uTailWidth) * pow(clamp(t, 0.0, 1.0), uTaperExp);
    float hw = 0.5 * aShape.x * uResolution.y * taper * uWiden;
    vec2 pos = centre + normal * hw * aStrip.y;

    vec2 ndc = (pos / uResolution) * 2.0 - 1.0;
    ndc.y = -ndc.y;
    gl_Position = vec4(ndc, 0.0, 1.0);

    vColor = aColor;
    vSide = aStrip.y;
    vT = t;
    vGlow = aMeta.w;
}
` + "\x00"

// Core fragment shader: soft outer layer plus a brighter inner core, faded
// from a transparent tail to an opaque head.
const ribbonCoreFragSrc = `#version 410 core

in vec4 vColor;
in float vSide;
in float vT;
out vec4 FragColor;

void main() {
    float edge = 1.0 - abs(vSide);
    float soft = smoothstep(0.0, 0.35, edge);
    float core = smoothstep(0.55, 1.0, edge);
    vec3 c = mix(vColor.rgb, vec3(1.0), 0.35 * core);
    float a = vColor.a * vT * (0.55 * soft + 0.35 * core);
    FragColor = vec4(c, a);
}
` + "\x00"

// Glow fragment shader: wide, faint, bloom-tinted; drawn additively.
const ribbonGlowFragSrc = `#version 410 core

in vec4 vColor;
in float vSide;
in float vT;
in float vGlow;
out vec4 FragColor;

void main() {
    float edge = 1.0 - abs(vSide);
    float a = vColor.a * vGlow * 0.35 * edge * edge * vT;
    vec3 c = mix(vColor.rgb, vec3(1.0), 0.3);
    FragColor = vec4(c * a, a);
}
` + "\x00"

// Sprite vertex shader: point sprites in normalized viewport coordinates.
const spriteVertSrc = `#version 410 core

layout(location = 0) in vec2 aPos;
layout(location = 1) in float aSize;
layout(location = 2) in vec4 aColor;
layout(location = 3) in float aRotation;

uniform vec2 uResolution;

out vec4 vColor;

void main() {
    vec2 ndc = aPos * 2.0 - 1.0;
    ndc.y = -ndc.y;
    gl_Position = vec4(ndc, 0.0, 1.0);
    gl_PointSize = max(1.0, aSize);
    vColor = aColor;
}
` + "\x00"

// Sprite fragment shader: soft disc, alpha blended.
const spriteFragSrc = `#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
    float dist = length(gl_PointCoord - vec2(0.5)) * 2.0;
    if (dist > 1.0) discard;
    float edge = 1.0 - smoothstep(0.6, 1.0, dist);
    FragColor = vec4(vColor.rgb, vColor.a * edge);
}
` + "\x00"

// Glow sprite fragment shader: additive radial falloff.
// vColor.rgb is expected pre-multiplied.
const glowFragSrc = `#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
    float dist = length(gl_PointCoord - vec2(0.5)) * 2.0; // 0=center, 1=edge
    float falloff = clamp(1.0 - dist, 0.0, 1.0);
    falloff = falloff * falloff;
    FragColor = vec4(vColor.rgb * falloff, 1.0);
}
` + "\x00"
