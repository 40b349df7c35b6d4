package carbonaccounting

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DecodeFactor builds a factor from a loosely typed row, as found in imported
// spreadsheets where numbers and years are often strings.
func DecodeFactor(raw map[string]any) (UtilityEmissionsFactorItem, error) {
	factor := UtilityEmissionsFactorItem{}
	if err := decode(raw, &factor); err != nil {
		return factor, err
	}
	if factor.UUID == "" {
		return factor, fmt.Errorf("%w: emissions factor uuid is required", ErrInvalidArgument)
	}
	return factor, nil
}

// DecodeLookup builds a utility lookup item from a loosely typed row.
func DecodeLookup(raw map[string]any) (UtilityLookupItem, error) {
	lookup := UtilityLookupItem{}
	if err := decode(raw, &lookup); err != nil {
		return lookup, err
	}
	if lookup.UUID == "" {
		return lookup, fmt.Errorf("%w: utility identifier uuid is required", ErrInvalidArgument)
	}
	return lookup, nil
}

func decode(raw map[string]any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
		WeaklyTypedInput: true,
		Result:           result,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(compact(raw)); err != nil {
		return fmt.Errorf("%w: %s", ErrParse, err.Error())
	}
	return nil
}

// compact drops blank cells so that they stay absent instead of decoding as zero.
func compact(raw map[string]any) map[string]any {
	cleaned := make(map[string]any, len(raw))
	for k, v := range raw {
		switch value := v.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(value) == "" {
				continue
			}
		case map[string]any:
			v = compact(value)
		}
		cleaned[k] = v
	}
	return cleaned
}
