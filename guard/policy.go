package guard

import "github.com/nsxbet/sql-guard/internal/rules"

// Policy is the access-control configuration validated statements are
// checked against. It lives in internal/rules (so the rule engine can use
// it without importing this package) and is re-exported here.
type Policy = rules.Policy
