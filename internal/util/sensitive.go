// BYZRA ⸻ internal/util/sensitive.go
// tag names that tend to identify a person, device or place

package util

import "strings"

var sensitiveFields = []string{
	"GPSLatitude", "GPSLongitude", "GPSAltitude", "GPSPosition", "GPSTimeStamp",
	"Location", "City", "Country", "Sub-location", "ProvinceState",
	"Author", "Creator", "Artist", "Owner", "Copyright", "Byline",
	"Email", "CameraSerialNumber", "SerialNumber", "BodySerialNumber",
	"LensSerialNumber", "DeviceID", "ImageUniqueID", "DocumentID",
	"OriginalFilename", "UserName", "HostComputer", "CameraOwnerName",
	"Make", "Model", "Software", "CreatorTool",
	"CreateDate", "ModifyDate", "DateTimeOriginal", "DateTime",
}

// returns names of potentially sensitive metadata fields
func SensitiveFields() []string {
	out := make([]string, len(sensitiveFields))
	copy(out, sensitiveFields)
	return out
}

// IsSensitiveField matches on the last dotted or colon separated part of a
// tag id, so "Exif.Image.Make" and "EXIF:Make" both hit "Make".
func IsSensitiveField(tag string) bool {
	name := tag
	if i := strings.LastIndexAny(name, ".:"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(name)
	if name == "" {
		return false
	}

	for _, sensitive := range sensitiveFields {
		s := strings.ToLower(sensitive)
		if s == name {
			return true
		}
		// compound fields such as GPSLatitudeRef, CameraSerialNumberValue
		if strings.HasPrefix(name, s) {
			return true
		}
	}

	return false
}
