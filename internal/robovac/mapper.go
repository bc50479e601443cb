package robovac

// Dialect identifies which data-point key generation a device's
// firmware speaks.
type Dialect string

const (
	// DialectLegacy is the flat low-numbered key scheme of older firmware.
	DialectLegacy Dialect = "legacy"
	// DialectNovel is the 15x/17x key scheme with protobuf-encoded values.
	DialectNovel Dialect = "novel"
)

// novelCodes maps normalized fields to novel-dialect wire codes.
//
// Work mode and work status share code 153: the device packs both into
// one WorkStatus payload, so a single inbound key fans out to two
// normalized fields.
var novelCodes = map[Field]string{
	FieldPlayPause:          "152",
	FieldWorkMode:           "153",
	FieldWorkStatus:         "153",
	FieldCleaningParameters: "154",
	FieldDirection:          "155",
	FieldCleanSpeed:         "158",
	FieldFindRobot:          "160",
	FieldBatteryLevel:       "163",
	FieldCleaningStatistics: "167",
	FieldAccessoriesStatus:  "168",
	FieldGoHome:             "173",
	FieldErrorCode:          "177",
}

// legacyCodes maps normalized fields to legacy-dialect wire codes.
var legacyCodes = map[Field]string{
	FieldPlayPause:    "2",
	FieldDirection:    "3",
	FieldWorkMode:     "5",
	FieldWorkStatus:   "15",
	FieldGoHome:       "101",
	FieldCleanSpeed:   "102",
	FieldFindRobot:    "103",
	FieldBatteryLevel: "104",
	FieldErrorCode:    "106",
}

// novelKeySet is the reverse view used by Classify.
var novelKeySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(novelCodes))
	for _, code := range novelCodes {
		set[code] = struct{}{}
	}
	return set
}()

// Classify determines the dialect from a raw data-point batch. Any
// novel key in the batch means novel, even when legacy keys are also
// present. An empty batch defaults to novel, the newer scheme.
func Classify(batch map[string]any) Dialect {
	if len(batch) == 0 {
		return DialectNovel
	}
	for key := range batch {
		if _, ok := novelKeySet[key]; ok {
			return DialectNovel
		}
	}
	return DialectLegacy
}

// codesFor returns the wire-code table for a dialect.
func codesFor(dialect Dialect) map[Field]string {
	if dialect == DialectLegacy {
		return legacyCodes
	}
	return novelCodes
}

// Normalize maps a raw batch onto normalized fields for the dialect.
// Every field whose wire code appears in the batch is set; a shared
// wire code (153) yields multiple fields from one raw key.
func Normalize(batch map[string]any, dialect Dialect) map[Field]any {
	if len(batch) == 0 {
		return nil
	}
	codes := codesFor(dialect)
	out := make(map[Field]any)
	for field, code := range codes {
		if value, ok := batch[code]; ok {
			out[field] = value
		}
	}
	return out
}

// WireCode returns the dialect's wire code for a normalized field.
// Used by the command facade to address outbound data points.
func WireCode(dialect Dialect, field Field) (string, bool) {
	code, ok := codesFor(dialect)[field]
	return code, ok
}
