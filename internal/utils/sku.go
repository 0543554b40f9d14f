package utils

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateSKU builds a display label for a payment record, e.g.
// "4821-partner-PT3040". The random prefix only disambiguates records in
// lists; it is not a primary key and collisions are acceptable.
func GenerateSKU(role, orderCode string) string {
	return fmt.Sprintf("%04d-%s-%s", rand.Intn(10000), role, orderCode)
}

// GenerateOrderCode produces a booker-facing order code such as
// "PT7381940552". Codes live behind a unique index; the timestamp plus
// random suffix makes collisions rare but the caller must still retry
// when the insert reports a duplicate.
func GenerateOrderCode() string {
	return fmt.Sprintf("PT%06d%04d", time.Now().UnixMilli()%1000000, rand.Intn(10000))
}
