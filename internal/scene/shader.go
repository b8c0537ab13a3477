package scene

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
)

const spirvMagic = 0x07230203

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("spir-v length %d is not a positive multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = common.ByteOrder.Uint32(b[i*4:])
	}

	if byteCode[0] != spirvMagic {
		return nil, errors.Newf("bad spir-v magic %#08x", byteCode[0])
	}
	return byteCode, nil
}

func loadShader(device core1_0.Device, path string) (core1_0.ShaderModule, error) {
	shaderBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read shader")
	}

	code, err := bytesToBytecode(shaderBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}

	shader, _, err := device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create shader module %s", path)
	}
	return shader, nil
}
