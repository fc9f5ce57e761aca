package notify

import "html/template"

// The email bodies share one HTML frame; per-kind content and accent color
// are interpolated. html/template escapes the admin-supplied rejection
// reason on the way in.
const frameHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: {{.Color}}; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; }
        h1 { color: {{.Color}}; }
        p { margin-bottom: 15px; }
        .footer { margin-top: 20px; font-size: 0.8em; color: #777; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Subject}}</h1>
        {{.Content}}
        <div class="footer">
            This is an automated email. Please do not reply.
        </div>
    </div>
</body>
</html>
`

const registrationHTML = `
    <p>Dear {{.FirstName}} {{.LastName}},</p>
    <p>Thank you for successfully registering for the {{.Program}} application portal. We're excited you've taken the first step!</p>
    <p>Your application is currently under review. Please ensure you have completed all the necessary sections and uploaded the required documents.</p>
    <p>We will notify you via email regarding the status of your application. Please keep an eye on your inbox for updates.</p>
    <p>Best regards,<br>The {{.Program}} Team</p>
`

const approvedHTML = `
    <p>Dear {{.FirstName}} {{.LastName}},</p>
    <p>Congratulations! Your application has been approved for the {{.Program}}.</p>
    <p>We will be in touch shortly with the next steps and further information about the program.</p>
    <p>Thank you for your interest. We look forward to welcoming you!</p>
    <p>Best regards,<br>The {{.Program}} Team</p>
`

const rejectedHTML = `
    <p>Dear {{.FirstName}} {{.LastName}},</p>
    <p>Thank you for your interest in the {{.Program}}. After careful review, we regret to inform you that your application has not been successful at this time.</p>
    {{if .RejectionReason}}<p><strong>Reason:</strong> {{.RejectionReason}}</p>{{else}}<p>No specific reason was provided.</p>{{end}}
    <p>We received many qualified applications and the selection process was competitive.</p>
    <p>We wish you all the best in your future endeavors.</p>
    <p>Sincerely,<br>The {{.Program}} Team</p>
`

const pendingHTML = `
    <p>Dear {{.FirstName}} {{.LastName}},</p>
    <p>Your application is still under review. Please ensure all documents are uploaded correctly.</p>
    <p>You will be notified once a decision is made.</p>
    <p>Best regards,<br>The {{.Program}} Team</p>
`

var (
	frameTmpl        = template.Must(template.New("frame").Parse(frameHTML))
	registrationTmpl = template.Must(template.New("registration").Parse(registrationHTML))
	approvedTmpl     = template.Must(template.New("approved").Parse(approvedHTML))
	rejectedTmpl     = template.Must(template.New("rejected").Parse(rejectedHTML))
	pendingTmpl      = template.Must(template.New("pending").Parse(pendingHTML))
)

type contentData struct {
	FirstName       string
	LastName        string
	Program         string
	RejectionReason string
}

type frameData struct {
	Subject string
	Color   string
	Content template.HTML
}
