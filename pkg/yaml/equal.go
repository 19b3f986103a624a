package yaml

import (
	"reflect"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
	"sigs.k8s.io/yaml"
)

// EqualYAMLs compares two YAML documents by unmarshalling them and comparing
// the resulting objects. Note well that this function does not take into
// account spaces and comments: it only compares the contents.
func EqualYAMLs(a []byte, b []byte) (bool, error) {
	var err error

	var aYAMLBytes []byte
	if len(a) > 0 {
		var aYAML any
		if err := yaml.Unmarshal(a, &aYAML); err != nil {
			return false, err
		}
		// now serialize both objects and compare the resulting YAML
		aYAMLBytes, err = yaml.Marshal(aYAML)
		if err != nil {
			return false, err
		}
	}

	var bYAMLBytes []byte
	if len(b) > 0 {
		var bYAML any
		if err := yaml.Unmarshal(b, &bYAML); err != nil {
			return false, err
		}

		bYAMLBytes, err = yaml.Marshal(bYAML)
		if err != nil {
			return false, err
		}
	}

	return string(aYAMLBytes) == string(bYAMLBytes), nil
}

/////////////////////////////////////////////////////////////////////////////////////

var spewConfig = spew.ConfigState{
	Indent:                  " ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	DisableMethods:          true,
	MaxDepth:                10,
}

// DiffYAML compares two YAML documents by unmarshalling them and diffing the
// normalized serializations. The difference is returned as a unified diff
// string; an empty string means no difference (or an unparsable input).
func DiffYAML(a []byte, b []byte) string {
	aNorm, err := normalize(a)
	if err != nil {
		return ""
	}
	bNorm, err := normalize(b)
	if err != nil {
		return ""
	}
	if aNorm == bNorm {
		return ""
	}
	return unified(aNorm, "Previous", bNorm, "Actual")
}

func normalize(doc []byte) (string, error) {
	if len(doc) == 0 {
		return "", nil
	}
	var v any
	if err := yaml.Unmarshal(doc, &v); err != nil {
		return "", err
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Diff renders the difference between two Go values as a unified diff,
// dumping maps, slices and structs deterministically. It returns an empty
// string for values of differing types or for non-composite values.
func Diff(previous any, actual any) string {
	return DiffWithDescription(previous, "Previous", actual, "Actual")
}

func DiffWithDescription(previous any, previousStr string, actual any, actualStr string) string {
	if previous == nil || actual == nil {
		return ""
	}

	pt := reflect.TypeOf(previous)
	at := reflect.TypeOf(actual)
	if pt != at {
		return ""
	}
	switch pt.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array, reflect.String:
	default:
		return ""
	}

	var p, a string
	if pt.Kind() == reflect.String {
		p = reflect.ValueOf(previous).String()
		a = reflect.ValueOf(actual).String()
	} else {
		p = spewConfig.Sdump(previous)
		a = spewConfig.Sdump(actual)
	}

	return unified(p, previousStr, a, actualStr)
}

func unified(a, aName, b, bName string) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  1,
	})
	return diff
}
