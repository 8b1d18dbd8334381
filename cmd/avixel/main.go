// Command avixel opens a window and draws a colored quad until it is closed.
package main

import (
	"flag"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/andewx/avixel"
	"github.com/andewx/avixel/config"
	"github.com/andewx/avixel/display"
	"github.com/andewx/avixel/gpu/vulkan"
	"github.com/andewx/avixel/render"
	"github.com/andewx/avixel/report"
)

const categoryMain = "main"

func init() {
	// glfw and the window surface must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "JSON configuration file")
	shaderDir := flag.String("shaders", "", "directory holding the compiled SPIR-V")
	validation := flag.Bool("validation", false, "enable the validation layers")
	width := flag.Int("width", 0, "window width in screen coordinates")
	height := flag.Int("height", 0, "window height in screen coordinates")
	stats := flag.Bool("stats", false, "print renderer statistics on exit")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			report.New(cfg.Log).Fatal(err)
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "shaders":
			cfg.ShaderDir = *shaderDir
		case "validation":
			cfg.Validation = *validation
		case "width":
			cfg.Window.Width = *width
		case "height":
			cfg.Window.Height = *height
		}
	})

	rep := report.New(cfg.Log, report.WithProject(cfg.Project.Name, cfg.Project.Version))

	programs, err := avixel.LoadPrograms(cfg.ShaderDir, avixel.DefaultPrograms)
	if err != nil {
		rep.Fatal(err)
	}

	if err := display.Init(); err != nil {
		rep.Fatal(err)
	}
	loader, err := vulkan.NewLoader(glfw.GetVulkanGetInstanceProcAddress())
	if err != nil {
		rep.Fatal(report.Wrapf(err, report.CodeNoSupport, categoryMain, "load Vulkan"), display.Terminate)
	}

	window, err := display.Open(cfg.Window, display.Hooks{
		OnResize: func(width, height int) {
			rep.Logf(report.CodeDebugInfo, categoryMain, "framebuffer resized to %dx%d", width, height)
		},
	}, rep)
	if err != nil {
		rep.Fatal(err, display.Terminate)
	}

	engine, err := avixel.New(cfg, loader, window, avixel.Scene{Geometry: render.Quad(), Pipelines: programs}, rep)
	if err != nil {
		rep.Fatal(err, display.Terminate)
	}
	if err := engine.Run(); err != nil {
		rep.Fatal(err, engine.Destroy, display.Terminate)
	}
	if *stats {
		rep.Logf(report.CodeInfo, categoryMain, "%s", engine.Stats())
	}
	engine.Destroy()
	display.Terminate()
}
