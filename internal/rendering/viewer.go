// Package rendering shows decoded animations in an OpenGL window.
package rendering

import (
	"embed"
	"fmt"
	"image"
	"runtime"
	"time"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

//go:embed all:shaders
var __shaders__ embed.FS

func init() {
	// GLFW event handling must run on the main thread
	runtime.LockOSThread()
}

const minWindowSize = 128

// Show opens a window and plays frames in a loop at the given rate.
// Left/right step a frame and pause playback, space resumes, escape
// closes. Blocks until the window is closed.
func Show(title string, frames []*image.RGBA, fps int) error {
	if len(frames) == 0 {
		return fmt.Errorf("rendering: nothing to show")
	}
	if fps <= 0 {
		fps = 8
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("rendering: glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	bounds := frames[0].Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	scale := 1
	for (w*scale < minWindowSize || h*scale < minWindowSize) && scale < 8 {
		scale++
	}
	window, err := glfw.CreateWindow(w*scale, h*scale, title, nil, nil)
	if err != nil {
		return fmt.Errorf("rendering: create window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		return fmt.Errorf("rendering: gl: %w", err)
	}

	program, err := buildProgram()
	if err != nil {
		return err
	}
	defer gl.DeleteProgram(program)

	vao, vbo := makeQuad()
	defer gl.DeleteVertexArrays(1, &vao)
	defer gl.DeleteBuffers(1, &vbo)

	var tex uint32
	gl.GenTextures(1, &tex)
	defer gl.DeleteTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	current, paused := 0, false
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape, glfw.KeyQ:
			window.SetShouldClose(true)
		case glfw.KeyRight:
			paused = true
			current = (current + 1) % len(frames)
		case glfw.KeyLeft:
			paused = true
			current = (current + len(frames) - 1) % len(frames)
		case glfw.KeySpace:
			paused = !paused
		}
	})

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0.15, 0.15, 0.15, 1)

	interval := time.Second / time.Duration(fps)
	last := time.Now()
	uploaded := -1
	for !window.ShouldClose() {
		if !paused && time.Since(last) >= interval {
			current = (current + 1) % len(frames)
			last = time.Now()
		}
		if uploaded != current {
			upload(frames[current])
			uploaded = current
		}

		gl.Clear(gl.COLOR_BUFFER_BIT)
		gl.UseProgram(program)
		gl.BindVertexArray(vao)
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)

		window.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

func upload(frame *image.RGBA) {
	b := frame.Bounds()
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(b.Dx()), int32(b.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(frame.Pix))
}

// quad covering the viewport, y flipped so image rows land top-down
func makeQuad() (vao, vbo uint32) {
	vertices := []float32{
		-1, 1, 0, 0,
		-1, -1, 0, 1,
		1, 1, 1, 0,
		1, -1, 1, 1,
	}
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 16, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 16, 8)
	return vao, vbo
}

func buildProgram() (uint32, error) {
	sources := map[uint32]string{}
	for name, kind := range map[string]uint32{
		"shaders/0.vertex.glsl":   gl.VERTEX_SHADER,
		"shaders/1.fragment.glsl": gl.FRAGMENT_SHADER,
	} {
		data, err := __shaders__.ReadFile(name)
		if err != nil {
			return 0, err
		}
		sources[kind] = string(data)
	}

	program := gl.CreateProgram()
	for kind, source := range sources {
		handle, err := compileShader(kind, source)
		if err != nil {
			gl.DeleteProgram(program)
			return 0, err
		}
		gl.AttachShader(program, handle)
		defer gl.DeleteShader(handle)
	}

	gl.LinkProgram(program)
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		logBuffer := make([]byte, logLength+1)
		gl.GetProgramInfoLog(program, logLength, nil, (*uint8)(gl.Ptr(&logBuffer[0])))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("rendering: failed to link program:\n%s", gl.GoStr((*uint8)(gl.Ptr(&logBuffer[0]))))
	}
	return program, nil
}

func compileShader(kind uint32, source string) (uint32, error) {
	handle := gl.CreateShader(kind)
	if handle == 0 {
		return 0, fmt.Errorf("rendering: failed to create shader handle")
	}
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(handle, 1, csources, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		logBuffer := make([]byte, logLength+1)
		gl.GetShaderInfoLog(handle, logLength, nil, (*uint8)(gl.Ptr(&logBuffer[0])))
		gl.DeleteShader(handle)
		return 0, fmt.Errorf("rendering: failed to compile shader:\n%s", gl.GoStr((*uint8)(gl.Ptr(&logBuffer[0]))))
	}
	return handle, nil
}
