package obj

// NativeKind is how a native type's bytes are interpreted.
type NativeKind int

const (
	NativeUnsigned NativeKind = iota
	NativeSigned
	NativeFloat
	NativeChar
)

func (k NativeKind) String() string {
	switch k {
	case NativeUnsigned:
		return "unsigned"
	case NativeSigned:
		return "signed"
	case NativeFloat:
		return "float"
	case NativeChar:
		return "char"
	default:
		return "unknown"
	}
}

// Endian pins a native type to a byte order. EndianProfile follows the profile.
type Endian int

const (
	EndianProfile Endian = iota
	EndianLittle
	EndianBig
)

// NativeType is a fixed-width scalar layout.
type NativeType struct {
	Size   int
	Kind   NativeKind
	Endian Endian
}

// Memory models recognized in metadata["memory_model"].
const (
	MemoryModel32 = "32bit"
	MemoryModel64 = "64bit"
)

// nativeTypes32 is the ILP32 layout.
var nativeTypes32 = map[string]NativeType{
	"int":                {Size: 4, Kind: NativeSigned},
	"long":               {Size: 4, Kind: NativeSigned},
	"unsigned long":      {Size: 4, Kind: NativeUnsigned},
	"unsigned int":       {Size: 4, Kind: NativeUnsigned},
	"address":            {Size: 4, Kind: NativeUnsigned},
	"char":               {Size: 1, Kind: NativeChar},
	"signed char":        {Size: 1, Kind: NativeSigned},
	"unsigned char":      {Size: 1, Kind: NativeUnsigned},
	"unsigned short int": {Size: 2, Kind: NativeUnsigned},
	"unsigned short":     {Size: 2, Kind: NativeUnsigned},
	"short":              {Size: 2, Kind: NativeSigned},
	"long long":          {Size: 8, Kind: NativeSigned},
	"unsigned long long": {Size: 8, Kind: NativeUnsigned},
	"float":              {Size: 4, Kind: NativeFloat},
	"double":             {Size: 8, Kind: NativeFloat},
	"unsigned be short":  {Size: 2, Kind: NativeUnsigned, Endian: EndianBig},
	"unsigned be int":    {Size: 4, Kind: NativeUnsigned, Endian: EndianBig},
	"unsigned le short":  {Size: 2, Kind: NativeUnsigned, Endian: EndianLittle},
	"unsigned le int":    {Size: 4, Kind: NativeUnsigned, Endian: EndianLittle},
}

// nativeTypes64 is the LLP64 layout: long stays 4 bytes, addresses grow to 8.
var nativeTypes64 = func() map[string]NativeType {
	m := cloneNatives(nativeTypes32)
	m["address"] = NativeType{Size: 8, Kind: NativeUnsigned}
	return m
}()

func nativesFor(model string) (map[string]NativeType, bool) {
	switch model {
	case MemoryModel32:
		return cloneNatives(nativeTypes32), true
	case MemoryModel64:
		return cloneNatives(nativeTypes64), true
	default:
		return nil, false
	}
}

func cloneNatives(m map[string]NativeType) map[string]NativeType {
	out := make(map[string]NativeType, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
