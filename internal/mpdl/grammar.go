// Package mpdl compiles modpack definition language text into a pack.Manifest.
//
// A definition is a sequence of lines. Blank lines and lines starting with
// "//" are ignored, and "#" starts a trailing comment ("\#" is a literal #).
// The first character of a line selects its category:
//
//	$minecraft 1.12.2            variable declaration
//	@import default              preprocessor (import a preset, URL or path)
//	[JEI] [NEI, REI]             alternative group declaration
//	: NEI                        group context for the following entries
//	%>= 1.12 238222 -s           postprocessor (splice the line if the
//	                             configured minecraft version is >= 1.12)
//	!238222                      remove a project defined earlier
//	-s -o 238222 2724420 -c a.cfg  mod entry with markers, file ID and a
//	                             client-only related file
//	-c config/my|file.cfg        auxiliary file; "|" stands for a space
//
// Markers are "-c" (client), "-s" (server), "-b" (both) and "-o" (optional).
package mpdl

const (
	commentPrefix      = "//"
	trailingComment    = '#'
	escapeChar         = '\\'
	variableSigil      = "$"
	preprocessorSigil  = "@"
	postprocessorSigil = "%"
	groupOpen          = "["
	groupClose         = "]"
	groupSeparator     = ","
	groupMarker        = ":"
	markerPrefix       = '-'
	removalPrefix      = "!"
	spacePlaceholder   = "|"
)

const (
	markerClient   = 'c'
	markerServer   = 's'
	markerBoth     = 'b'
	markerOptional = 'o'
)

// MinID is the smallest valid CurseForge project or file ID.
const MinID = 10

// importPreprocessor is the only preprocessor.
const importPreprocessor = "import"

// maxImportDepth bounds nested imports.
const maxImportDepth = 32
