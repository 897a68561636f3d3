package shader

// Uniform names of the hero program. These, with their GLSL types, are the
// contract between the renderer and any fragment source it is given.
const (
	UniformResolution   = "resolution"   // vec2
	UniformTime         = "time"         // float, seconds
	UniformMove         = "move"         // vec2
	UniformTouch        = "touch"        // vec2
	UniformPointerCount = "pointerCount" // int
	UniformPointers     = "pointers"     // vec2[10]
)

// AttribPosition is the vertex attribute fed by the full-screen quad.
const AttribPosition = "position"

// HeroFragment draws drifting fbm clouds, a ring of glowing orbs that
// drifts toward touch, and a warm halo around every active pointer.
const HeroFragment = `#version 300 es
precision highp float;
out vec4 O;
uniform vec2 resolution;
uniform float time;
uniform vec2 move;
uniform vec2 touch;
uniform int pointerCount;
uniform vec2 pointers[10];

#define FC gl_FragCoord.xy
#define T time
#define R resolution
#define MN min(R.x,R.y)

float rnd(vec2 p) {
  p=fract(p*vec2(12.9898,78.233));
  p+=dot(p,p+34.56);
  return fract(p.x*p.y);
}

float noise(in vec2 p) {
  vec2 i=floor(p), f=fract(p), u=f*f*(3.-2.*f);
  float a=rnd(i), b=rnd(i+vec2(1,0)), c=rnd(i+vec2(0,1)), d=rnd(i+1.);
  return mix(mix(a,b,u.x),mix(c,d,u.x),u.y);
}

float fbm(vec2 p) {
  float t=.0, a=1.;
  mat2 m=mat2(1.,-.5,.2,1.2);
  for (int i=0; i<5; i++) {
    t+=a*noise(p);
    p*=2.*m;
    a*=.5;
  }
  return t;
}

float clouds(vec2 p) {
  float d=1., t=.0;
  for (float i=.0; i<3.; i++) {
    float a=d*fbm(i*10.+p.x*.2+.2*(1.+i)*p.y+d+i*i+p);
    t=mix(t,d,a);
    d=a;
    p*=2./(i+1.);
  }
  return t;
}

void main(void) {
  vec2 uv=(FC-.5*R)/MN;
  vec2 st=uv*vec2(2.,1.);

  vec3 col=vec3(0);
  float bg=clouds(vec2(st.x+T*.5,-st.y+move.y*.001));

  uv+=.1*touch/MN;
  uv*=1.-.3*(sin(T*.2)*.5+.5);

  for (float i=1.; i<12.; i++) {
    uv+=.1*cos(i*vec2(.1+.01*i, .8)+i*i+T*.5+.1*uv.x);
    vec2 p=uv;
    float d=length(p);
    col+=.00125/d*(cos(sin(i)*vec3(1,2,3))+1.);
    float b=noise(i+p+bg*1.731);
    col+=.002*b/length(max(p,vec2(b*p.x*.02,p.y)));
    col=mix(col,vec3(bg*.25,bg*.137,bg*.05),d);
  }

  for (int i=0; i<pointerCount; i++) {
    vec2 pcoord = pointers[i];
    float dist = distance(FC, pcoord);
    col += vec3(.5,.3,.1) * 0.1 / (dist + 1.);
  }

  O=vec4(col,1);
}`

// QuadVertices is the full-viewport triangle strip.
var QuadVertices = []float32{-1, 1, -1, -1, 1, 1, 1, -1}
