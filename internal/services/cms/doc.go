// Package cms publishes approved articles to a Sanity content lake via the
// mutation API. When no CMS credentials are configured the publisher refuses
// with a configuration error so approvals fail loudly instead of silently
// dropping content.
package cms
