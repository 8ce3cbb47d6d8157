package service

// mediaURL converts a stored media reference to its public URL path.
func mediaURL(ref string) string {
	if ref == "" {
		return ""
	}
	return "/media/" + ref
}
