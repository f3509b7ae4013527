package email

import (
	"fmt"
	"html"
)

const donationReceiptTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Donation Receipt</title>
</head>
<body style="margin: 0; padding: 0; background-color: #f9fafb; font-family: Arial, sans-serif;">
    <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%%" style="background-color: #f9fafb;">
        <tr>
            <td align="center" style="padding: 40px 20px;">
                <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="600" style="background-color: #ffffff; border-radius: 8px;">
                    <tr>
                        <td style="padding: 32px; background-color: #d97706; border-radius: 8px 8px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 22px;">Sahaya Foundation</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 32px;">
                            <h2 style="margin-top: 0; color: #111827;">Thank you, %s!</h2>
                            <p style="color: #374151;">We have received your donation of <strong>INR %s</strong>.</p>
                            <p style="color: #374151;">Your reference number is <strong>%s</strong>. Please keep it for your records and for tax purposes.</p>
                            <p style="color: #374151;">Your support helps us continue our work in education, healthcare and community development.</p>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 24px 32px; background-color: #f3f4f6; border-radius: 0 0 8px 8px;">
                            <p style="margin: 0; color: #6b7280; font-size: 12px;">Sahaya Foundation &middot; This receipt was generated automatically.</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`

const contactNotificationTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Contact Form Message</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif;">
    <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="600">
        <tr>
            <td style="padding: 24px;">
                <h2 style="color: #111827;">New contact form message</h2>
                <p><strong>From:</strong> %s &lt;%s&gt;</p>
                <p><strong>Subject:</strong> %s</p>
                <p style="white-space: pre-wrap; color: #374151;">%s</p>
            </td>
        </tr>
    </table>
</body>
</html>
`

func donationReceiptBody(name, amount, donationID string) string {
	return fmt.Sprintf(donationReceiptTemplate,
		html.EscapeString(name), html.EscapeString(amount), html.EscapeString(donationID))
}

func contactNotificationBody(name, fromEmail, subject, message string) string {
	return fmt.Sprintf(contactNotificationTemplate,
		html.EscapeString(name), html.EscapeString(fromEmail),
		html.EscapeString(subject), html.EscapeString(message))
}
