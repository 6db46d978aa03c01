package auth

import (
	"fmt"
	"strings"
)

// ShowCookieExtractionGuide displays step-by-step instructions for
// exporting XiaoHongShu cookies from a browser
func ShowCookieExtractionGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("COOKIE EXTRACTION GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("This tool needs your XiaoHongShu browser cookies to call the web API.")
	fmt.Println("Follow these steps to export them:")
	fmt.Println()

	fmt.Println("STEP 1: Open XiaoHongShu in your browser")
	fmt.Println("   - Go to https://www.xiaohongshu.com")
	fmt.Println("   - Log in and make sure the feed loads")
	fmt.Println()

	fmt.Println("STEP 2: Open Developer Tools")
	fmt.Println("   - Chrome/Edge: F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   - Firefox: F12")
	fmt.Println()

	fmt.Println("STEP 3: Export the cookies")
	fmt.Println("   - Go to the Application tab (Chrome) or Storage tab (Firefox)")
	fmt.Println("   - Expand 'Cookies' and select 'https://www.xiaohongshu.com'")
	fmt.Println("   - Copy every cookie into a JSON file, either as a flat")
	fmt.Println("     {\"name\": \"value\"} map or a list of {\"name\", \"value\"} objects")
	fmt.Println("   - Browser extensions like Cookie-Editor can export this directly")
	fmt.Println()

	fmt.Println("STEP 4: Check the a1 cookie is present")
	fmt.Println("   - The 'a1' cookie is the device ID and is required for signing")
	fmt.Println("   - Without it the token server cannot generate valid tokens")
	fmt.Println()

	fmt.Println("SECURITY WARNING:")
	fmt.Println("   - These cookies give full access to your account")
	fmt.Println("   - Never share the cookie file and keep its permissions tight")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickExtractGuide shows a condensed version for experienced users
func ShowQuickExtractGuide() {
	fmt.Println("\nQuick guide: F12 -> Application/Storage -> Cookies -> www.xiaohongshu.com")
	fmt.Println("   Export all cookies to JSON; the 'a1' cookie is required")
	fmt.Println("   Run 'xhsclient auth guide' for detailed instructions")
}
