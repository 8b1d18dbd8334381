package render

import (
	"encoding/binary"
	"os"

	"github.com/andewx/avixel/report"
)

const spirvMagic = 0x07230203

// LoadShader reads a SPIR-V binary and checks its header.
func LoadShader(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, report.Wrapf(err, report.CodeIOError, categoryPipeline, "read shader %s", path)
	}
	if err := ValidateSPIRV(code); err != nil {
		return nil, report.Wrapf(err, report.CodeParseError, categoryPipeline, "shader %s", path)
	}
	return code, nil
}

// ValidateSPIRV checks word alignment and the magic number.
func ValidateSPIRV(code []byte) error {
	if len(code) < 20 || len(code)%4 != 0 {
		return report.Errorf(report.CodeParseError, categoryPipeline, "%d bytes is not a SPIR-V module", len(code))
	}
	if binary.LittleEndian.Uint32(code) != spirvMagic {
		return report.Errorf(report.CodeParseError, categoryPipeline, "bad SPIR-V magic %#x", binary.LittleEndian.Uint32(code))
	}
	return nil
}
