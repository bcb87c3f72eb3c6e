package gl41

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/goshaderbridge/textures"
)

// Target is an offscreen RGBA8 framebuffer with a depth attachment. The
// recorder renders into it at a fixed size regardless of the window.
type Target struct {
	fbo               uint32
	textureID         uint32
	depthRenderbuffer uint32
	width             int
	height            int
}

func NewTarget(width, height int) (*Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid offscreen size %dx%d", width, height)
	}
	t := &Target{width: width, height: height}

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.GenTextures(1, &t.textureID)
	gl.BindTexture(gl.TEXTURE_2D, t.textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.textureID, 0)
	gl.GenRenderbuffers(1, &t.depthRenderbuffer)
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.depthRenderbuffer)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, t.depthRenderbuffer)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		t.Destroy()
		return nil, fmt.Errorf("offscreen fbo is not complete (status 0x%x)", status)
	}
	return t, nil
}

func (t *Target) Size() (int, int) { return t.width, t.height }

// Bind directs subsequent draws into the target.
func (t *Target) Bind() { gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo) }

// Unbind restores the default framebuffer.
func (t *Target) Unbind() { gl.BindFramebuffer(gl.FRAMEBUFFER, 0) }

// ReadRGBA copies the target's pixels into dst, bottom row first, which
// must hold width*height*4 bytes.
func (t *Target) ReadRGBA(dst []byte) error {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	err := ReadPixels(0, 0, t.width, t.height, dst)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	return err
}

func (t *Target) Destroy() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
	}
	if t.textureID != 0 {
		gl.DeleteTextures(1, &t.textureID)
	}
	if t.depthRenderbuffer != 0 {
		gl.DeleteRenderbuffers(1, &t.depthRenderbuffer)
	}
	t.fbo, t.textureID, t.depthRenderbuffer = 0, 0, 0
}

// ReadPixels reads an RGBA8 rectangle of the current read framebuffer into
// dst, bottom row first.
func ReadPixels(x, y, width, height int, dst []byte) error {
	need := width * height * 4
	if len(dst) < need {
		return fmt.Errorf("pixel buffer holds %d bytes, need %d", len(dst), need)
	}
	if need == 0 {
		return nil
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(dst))
	return nil
}

// ReadImage reads the current read framebuffer into a top-down image.
func ReadImage(width, height int) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := ReadPixels(0, 0, width, height, img.Pix); err != nil {
		return nil, err
	}
	textures.FlipRows(img)
	return img, nil
}
