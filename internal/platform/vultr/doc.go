// Package vultr implements cloud.Provider against the Vultr v2 REST API.
//
// All traffic goes through [Client.Do], the single place where HTTP outcomes
// become errors:
//
//   - 200, 201, 202 and 204 are success; a non-empty body is decoded as JSON.
//   - Any 4xx is a [cloud.KindClient] error and is never retried.
//   - 5xx, other statuses and network failures are retried for GET, PUT and
//     DELETE with linear backoff (attempt × base delay). POST and PATCH are
//     sent exactly once, since repeating them can create duplicate resources.
//   - A transient failure that outlives the budget is [cloud.KindExhausted].
//
// Every attempt is logged at V(1) and counted in metrics; failed attempts are
// logged at V(0) with attempt/max counters.
package vultr
