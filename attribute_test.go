package sqsconsumer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributeRoundTrip(t *testing.T) {
	cases := map[string]AttributeValue{
		"str": StringAttribute("hello"),
		"num": NumberAttribute("42"),
		"bin": BinaryAttribute([]byte{1, 2, 3}),
		"nil": NullAttribute(),
	}

	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			got := decodeAttribute(v.encode())
			assert.Equal(t, v, got)
		})
	}
}

func TestEncodeAttributesEmptyIsNil(t *testing.T) {
	assert.Nil(t, encodeAttributes(nil))
	assert.Nil(t, encodeAttributes(map[string]AttributeValue{}))
}

func TestDecodeAttributesUnknownDataTypeDefaultsToString(t *testing.T) {
	wire := map[string]WireMessageAttributeValue{
		"x": {DataType: "", StringValue: "v"},
	}
	got := decodeAttributes(wire)
	assert.Equal(t, StringAttribute("v"), got["x"])
}
