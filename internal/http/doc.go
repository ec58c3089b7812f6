// Package http provides the chi router, handlers and middleware of the planning API.
//
// The router exposes the following endpoints:
//   - GET /healthz: store reachability. GET /metrics: Prometheus exposition.
//   - GET /api/members, POST /api/members {"full_name"}, GET and DELETE
//     /api/members/{id}: member directory; responses carry display names that
//     tell namesakes apart.
//   - GET /api/members/{id}/absences, GET /api/members/{id}/absent?date=&slot=,
//     POST /api/members/{id}/absences/consolidate: per-member absence queries.
//   - GET /api/absences?member_id= or ?start=&end=, POST /api/absences
//     {"member_id","start_date","end_date","start_slot","end_slot"}, DELETE
//     /api/absences/{id}, GET /api/absences/today?date=. Creating an absence
//     merges it with every overlapping or touching interval of the member.
//   - GET/POST /api/assignments/recurring, DELETE /api/assignments/recurring/{id},
//     PUT /api/assignments/recurring/{weekday}/{slot} {"member_ids"}: weekly
//     roster; roster replacement answers staffing warnings.
//   - GET/POST /api/assignments/specific, DELETE /api/assignments/specific/{id},
//     POST /api/assignments/specific/generate {"start","end"}: dated roster rows.
//   - GET /api/planning?start=&end=, GET /api/planning/week?date=&offset=,
//     GET /api/planning/three-weeks?date=, GET /api/planning/export?start=&end=.
//   - POST /api/maintenance/consolidate: consolidates every member's absences.
//
// Dates are YYYY-MM-DD and slots "opening" or "closing". Validation failures
// answer 422 with an error_code (VALIDATION_FAILED, INVALID_RANGE or
// INVALID_SLOT_CONFIGURATION); unknown resources 404, uniqueness conflicts 409
// and unreadable bodies 400. Mutating requests are rate limited per client IP.
package http
