package tree

import (
	"encoding/json"
	"errors"

	"i2ctree-go/drivers/ad5245"
	"i2ctree-go/drivers/ad5321"
	"i2ctree-go/drivers/ad7998"
	"i2ctree-go/drivers/mcp23008"
	"i2ctree-go/drivers/si570"
	"i2ctree-go/drivers/tpl0102"
	"i2ctree-go/i2c"
)

// ErrParams is returned when a node's params do not decode or name an
// unknown value.
var ErrParams = errors.New("tree: invalid node params")

func init() {
	RegisterBuilder("container", BuilderFunc(buildContainer))
	RegisterBuilder("tca9548", BuilderFunc(buildTCA9548))
	RegisterBuilder("ad5245", BuilderFunc(buildAD5245))
	RegisterBuilder("tpl0102", BuilderFunc(buildTPL0102))
	RegisterBuilder("ad5321", BuilderFunc(buildAD5321))
	RegisterBuilder("ad7998", BuilderFunc(buildAD7998))
	RegisterBuilder("mcp23008", BuilderFunc(buildMCP23008))
	RegisterBuilder("si570", BuilderFunc(buildSI570))
}

// addrOr substitutes a chip's default address for an unset one.
func addrOr(spec NodeSpec, def uint16) uint16 {
	if spec.Addr == 0 {
		return def
	}
	return spec.Addr
}

func buildContainer(in BuildInput) (i2c.Node, error) {
	return i2c.NewContainer(), nil
}

func buildTCA9548(in BuildInput) (i2c.Node, error) {
	return i2c.NewTCA9548(in.Bus, addrOr(in.Spec, i2c.AddressDefault))
}

func buildAD5245(in BuildInput) (i2c.Node, error) {
	return ad5245.New(in.Bus, addrOr(in.Spec, ad5245.AddressDefault))
}

func buildTPL0102(in BuildInput) (i2c.Node, error) {
	return tpl0102.New(in.Bus, addrOr(in.Spec, tpl0102.AddressDefault))
}

func buildAD5321(in BuildInput) (i2c.Node, error) {
	return ad5321.New(in.Bus, addrOr(in.Spec, ad5321.AddressDefault)), nil
}

func buildAD7998(in BuildInput) (i2c.Node, error) {
	return ad7998.New(in.Bus, addrOr(in.Spec, ad7998.AddressDefault))
}

func buildMCP23008(in BuildInput) (i2c.Node, error) {
	return mcp23008.New(in.Bus, addrOr(in.Spec, mcp23008.AddressDefault))
}

type si570Params struct {
	Model string `json:"model"`
}

func buildSI570(in BuildInput) (i2c.Node, error) {
	var p si570Params
	if len(in.Spec.Params) > 0 {
		if err := json.Unmarshal(in.Spec.Params, &p); err != nil {
			return nil, ErrParams
		}
	}
	model := si570.ModelA
	switch p.Model {
	case "", "a":
		model = si570.ModelA
	case "b":
		model = si570.ModelB
	case "c":
		model = si570.ModelC
	default:
		return nil, ErrParams
	}
	return si570.New(in.Bus, addrOr(in.Spec, si570.AddressDefault), model)
}
