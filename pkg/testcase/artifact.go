package testcase

import (
	"fmt"
	"net/url"
	"strings"
)

// ArtifactKind names one of the files the backend writes for an
// executed test case.
type ArtifactKind string

const (
	ArtifactScreenshot ArtifactKind = "screenshot"
	ArtifactLog        ArtifactKind = "log"
)

// ArtifactFileName returns the backend file name for an artifact.
// Names are derived from the id only.
func ArtifactFileName(id ID, kind ArtifactKind) string {
	switch kind {
	case ArtifactScreenshot:
		return fmt.Sprintf("test_case_%s_screenshot.png", id)
	case ArtifactLog:
		return fmt.Sprintf("test_case_%s_log.txt", id)
	default:
		return fmt.Sprintf("test_case_%s_%s", id, kind)
	}
}

// ArtifactPath returns the request path of an artifact relative
// to the backend origin.
func ArtifactPath(id ID, kind ArtifactKind) string {
	return "/report/" + url.PathEscape(ArtifactFileName(id, kind))
}

// ArtifactURL joins the backend base URL and the artifact path.
func ArtifactURL(baseURL string, id ID, kind ArtifactKind) string {
	return strings.TrimRight(baseURL, "/") + ArtifactPath(id, kind)
}

// Artifacts holds both artifact URLs of one test case.
type Artifacts struct {
	Screenshot string `json:"screenshot"`
	Log        string `json:"log"`
}

// ArtifactsFor derives the artifact URLs for a test case.
func ArtifactsFor(baseURL string, id ID) Artifacts {
	return Artifacts{
		Screenshot: ArtifactURL(baseURL, id, ArtifactScreenshot),
		Log:        ArtifactURL(baseURL, id, ArtifactLog),
	}
}
