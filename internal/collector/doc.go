// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

/*
Package collector decides whether a visit event may be recorded for a project.

Every POST /events request passes through Authorizer.Authorize, which runs a
fixed sequence of checks and stops at the first failure:

 1. ExtractClientIP derives the client address from connector and proxy
    headers. No address means ReasonNoClientAddress.
 2. The project is looked up by id. Unknown ids mean ReasonProjectNotFound.
 3. ResolveHostname reads Origin, then Referer, then the request URL.
    No usable hostname means ReasonNoResolvableHostname.
 4. The hostname is matched against the project's DomainRule list.
    No matching rule means ReasonDomainNotAllowed.

The cheap header checks run before the storage lookups, and the domain list
is only fetched for projects that exist. A rejection is a normal outcome and
is reported through Verdict.Reason. The only errors Authorize returns come
from the storage collaborators.

All functions here are free of shared mutable state and are safe to call from
any number of request goroutines.

The package also owns the payload shape accepted by the collector endpoint
(ParsePayload) and the event classification derived from a geolocation
record (Classify).
*/
package collector
