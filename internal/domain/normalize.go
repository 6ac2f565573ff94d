package domain

import "strings"

// Bucket is one of the three dashboard-facing aggregate states, or
// BucketExcluded for orders that must not be counted at all.
type Bucket string

const (
	BucketInQueue  Bucket = "in-queue"
	BucketAktif    Bucket = "aktif"
	BucketSelesai  Bucket = "selesai"
	BucketExcluded Bucket = "excluded"
)

// Buckets lists the three countable buckets in stable order.
func Buckets() []Bucket {
	return []Bucket{BucketInQueue, BucketAktif, BucketSelesai}
}

// NormalizeStatus folds the customer and admin status vocabularies into
// the dashboard buckets. The input is raw on purpose: stored orders may
// carry values that predate the Status enum. Unrecognized values land in
// aktif so they stay visible in the counts instead of silently dropping.
func NormalizeStatus(raw string) Bucket {
	s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-")
	switch s {
	case "cancelled", "canceled", "dibatalkan", "expired":
		return BucketExcluded
	case "selesai":
		return BucketSelesai
	case "in-queue":
		return BucketInQueue
	case "aktif":
		return BucketAktif
	case "awaiting-payment", "waiting-payment", "payment-pending", "pending":
		return BucketInQueue
	case "diproses", "processing", "paid", "shipped":
		return BucketAktif
	default:
		return BucketAktif
	}
}
