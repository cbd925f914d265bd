// Package notifications delivers review emails to the editor. The HTML body
// carries the quality report and single-use approve/decline links; delivery
// goes through a transactional mail HTTP endpoint. An unconfigured mailer
// degrades to a noop so the pipeline never blocks on email.
package notifications
