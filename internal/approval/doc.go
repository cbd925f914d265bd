// Package approval implements the single-use approval token lifecycle. A
// token is minted when a review email goes out, stored only as a hash, and
// redeemed exactly once through the gate: approve publishes the article,
// decline closes the workflow, and concurrent redemptions produce one winner.
package approval
