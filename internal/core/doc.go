// Package core provides the business logic for morphokinetic dataset intake.
//
// It contains all domain logic independent of any UI or transport layer and
// is used by the web server and the command-line tool alike.
//
// # Validation
//
// A [Validator] checks a decoded spreadsheet ([Grid]) against a fixed
// [Schema]. The outcome is a [Result]: either defect descriptions (at most
// [MaxDefects]) or [Record]s, never both.
//
//	v := core.NewValidator(schema.Morphokinetic())
//	res, err := v.Validate(grid)
//	if err != nil {
//	    // only a nil grid gets here
//	}
//	if !res.Accepted() {
//	    for _, msg := range res.Messages() { ... }
//	}
//
// # Submission Flow
//
// [Service] wires the validator to a spreadsheet [Decoder] and a prediction
// [Predictor]:
//
//  1. [Service.Intake] checks the file type and size, decodes the first sheet
//     and validates it
//  2. Accepted submissions carry a [Preview] of their first rows
//  3. [Service.Predict] sends the original file bytes to the prediction
//     service, bounded by a [SubmissionLimiter]
//  4. The returned classifications come back as [Results] with a [Summary]
//
// Nothing is stored between calls. Callers pass submissions and results
// along explicitly.
//
// # Error Handling
//
// Data problems are defects inside a Result. File, transport and capacity
// problems are Go errors; [MapError] turns them into coded user messages
// (FILE, VAL, PRED, UPL, RATE, ERR000).
package core
