// Copyright 2023 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package checkin records club attendance in a Google Sheets worksheet.

A session check-in code is issued to the worksheet and members check in with their email address and
the code. Each member is credited with at most one check-in per week.

uhppoted-app-checkin supports the following commands:

  - authorise, to authorise application access to the Google Sheets worksheet
  - run, to run the check-in HTTP service
  - generate, to issue a new session check-in code
  - checkin, to record a member check-in from the command line
  - get, to download the attendance table as a TSV file
  - put, to replace the attendance table with the contents of a TSV file
*/
package checkin
