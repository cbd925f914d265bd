// Package images sources article illustrations from the Pexels search API.
// When no API key is configured a noop source is returned and articles are
// published without images.
package images
