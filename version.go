package deck

import "fmt"

// Version information for the presentation-maker module.
const (
	VersionMajor = 1
	VersionMinor = 2
	VersionPatch = 0
)

// Version is the full version string, written into exported documents.
var Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
