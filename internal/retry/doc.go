// Package retry implements a bounded fixed-delay retry policy.
package retry
