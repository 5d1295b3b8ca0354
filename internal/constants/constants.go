// SPDX-License-Identifier: AGPL-3.0-or-later
/*
 * Copyright (C) 2025 The ui5-cachebuster Authors.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package constants

const (
	// Version is the version of the application.
	Version = "0.2.1"
	// TelemetryURL is the URL of the telemetry service.
	TelemetryURL = "https://telemetry.ui5tools.dev"
)
