// Package config reads the engine configuration from JSON.
package config

import (
	"os"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"golang.org/x/term"

	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/report"
)

const categoryConfig = "config"

// Window position values with special meaning on either axis.
const (
	PositionUnset    = -1
	PositionCentered = -2
)

type Project struct {
	Name    string
	Version string
}

type Window struct {
	Title      string
	X, Y       int
	Width      int
	Height     int
	Resizable  bool
	Fullscreen bool
	Decorated  bool
	// Monitor indexes the connected monitors. Out of range falls back to the primary one.
	Monitor int
}

type Config struct {
	Project    Project
	Log        report.Config
	Validation bool
	Window     Window
	// ShaderDir holds the compiled SPIR-V the demo loads.
	ShaderDir string
}

// Default is a centered resizable 1280x720 window with colored output on terminals.
func Default() Config {
	log := report.DefaultConfig()
	log.Colors = term.IsTerminal(int(os.Stderr.Fd()))
	return Config{
		Project: Project{Name: "avixel", Version: "0.1"},
		Log:     log,
		Window: Window{
			Title:     "avixel",
			X:         PositionCentered,
			Y:         PositionCentered,
			Width:     1280,
			Height:    720,
			Resizable: true,
			Decorated: true,
		},
		ShaderDir: "shaders",
	}
}

// Load reads path over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, report.Wrapf(err, report.CodeIOError, categoryConfig, "read %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, report.Wrapf(err, report.CodeParseError, categoryConfig, "parse %s", path)
	}
	return cfg, nil
}

// Parse overlays the JSON document in data on Default. Unknown keys are ignored.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	r := jreader.NewReader(data)
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "project":
			readProject(&r, &cfg.Project)
		case "log":
			readLog(&r, &cfg.Log)
		case "validation":
			cfg.Validation = r.Bool()
		case "window":
			readWindow(&r, &cfg.Window)
		case "shaderDir":
			cfg.ShaderDir = r.String()
		default:
			_ = r.SkipValue()
		}
	}
	if err := r.Error(); err != nil {
		return Config{}, report.Wrapf(err, report.CodeParseError, categoryConfig, "invalid configuration")
	}
	return cfg, nil
}

func readProject(r *jreader.Reader, p *Project) {
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "name":
			p.Name = r.String()
		case "version":
			p.Version = r.String()
		default:
			_ = r.SkipValue()
		}
	}
}

func readWindow(r *jreader.Reader, w *Window) {
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "title":
			w.Title = r.String()
		case "x":
			w.X = r.Int()
		case "y":
			w.Y = r.Int()
		case "width":
			w.Width = r.Int()
		case "height":
			w.Height = r.Int()
		case "resizable":
			w.Resizable = r.Bool()
		case "fullscreen":
			w.Fullscreen = r.Bool()
		case "decorated":
			w.Decorated = r.Bool()
		case "monitor":
			w.Monitor = r.Int()
		default:
			_ = r.SkipValue()
		}
	}
}

func readLog(r *jreader.Reader, c *report.Config) {
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "level":
			c.Level = readSeverity(r)
		case "assertLevel":
			c.AssertLevel = readSeverity(r)
		case "validationLevel":
			c.ValidationLevel = readDebugSeverity(r)
		case "printLocation":
			c.PrintLocation = r.Bool()
		case "printCategory":
			c.PrintCategory = r.Bool()
		case "printCode":
			c.PrintCode = r.Bool()
		case "printProject":
			c.PrintProject = r.Bool()
		case "printTime":
			c.PrintTime = r.Bool()
		case "colors":
			c.Colors = r.Bool()
		case "disabledCategories":
			c.DisabledCategories = nil
			for arr := r.Array(); arr.Next(); {
				c.DisabledCategories = append(c.DisabledCategories, r.String())
			}
		case "disabledCodes":
			c.DisabledCodes = nil
			for arr := r.Array(); arr.Next(); {
				if code, ok := readCode(r); ok {
					c.DisabledCodes = append(c.DisabledCodes, code)
				}
			}
		default:
			_ = r.SkipValue()
		}
	}
}

func readSeverity(r *jreader.Reader) report.Severity {
	name := r.String()
	if r.Error() != nil {
		return report.SeverityDebug
	}
	sev, err := report.ParseSeverity(name)
	if err != nil {
		r.AddError(err)
	}
	return sev
}

func readCode(r *jreader.Reader) (report.Code, bool) {
	name := r.String()
	if r.Error() != nil {
		return 0, false
	}
	code, err := report.ParseCode(name)
	if err != nil {
		r.AddError(err)
		return 0, false
	}
	return code, true
}

var debugSeverities = map[string]gpu.DebugSeverity{
	"verbose": gpu.DebugVerbose,
	"info":    gpu.DebugInfo,
	"warning": gpu.DebugWarning,
	"error":   gpu.DebugError,
}

func readDebugSeverity(r *jreader.Reader) gpu.DebugSeverity {
	name := r.String()
	if r.Error() != nil {
		return gpu.DebugVerbose
	}
	sev, ok := debugSeverities[name]
	if !ok {
		r.AddError(report.Errorf(report.CodeParseError, categoryConfig, "unknown validation level %q", name))
	}
	return sev
}
