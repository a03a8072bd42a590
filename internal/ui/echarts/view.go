package echarts

import (
	"encoding/json"
	"net/url"
)

// SurfaceID returns the id of the mount point element.
func SurfaceID(id string) string { return id + "-surface" }

// ContentID returns the id of the drawing element.
func ContentID(id string) string { return id + "-content" }

// ModalHostID returns the id of the element hosting the overlay.
func ModalHostID(id string) string { return id + "-modal-host" }

// ModalID returns the id of the overlay.
func ModalID(id string) string { return id + "-modal" }

// ModalContentID returns the id of the overlay drawing element.
func ModalContentID(id string) string { return id + "-modal-content" }

// Action returns a datastar expression that sends a method request to
// path, e.g. Action("post", "/api/flags").
func Action(method, path string) string {
	return "@" + method + "(" + JSString(path) + ")"
}

// JSString quotes s as a JavaScript string literal. The result is safe
// inside an attribute once the attribute itself is HTML escaped.
func JSString(s string) string {
	raw, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(raw)
}

func surfaceAction(id, action string) string {
	return Action("post", "/api/surfaces/"+url.PathEscape(id)+"/"+action)
}
