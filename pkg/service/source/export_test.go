package source

var ParseGCSURI = parseGCSURI
