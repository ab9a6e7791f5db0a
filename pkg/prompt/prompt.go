package prompt

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	userPrompt = "cert-bundle-maker> $ "
)

func PrintBanner(version string) {
	color.New(color.FgGreen).Printf("Certificate Bundle Maker v%s\n\n", version)
}

func PasswordPrompt(message string) []byte {
	fmt.Printf("%s: \n", message)
	fmt.Printf(userPrompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println()
	return password
}

func RootPassword() []byte {
	return PasswordPrompt("Root CA Password")
}

func TenantPassword(name string) []byte {
	return PasswordPrompt(fmt.Sprintf("Tenant %s Password", name))
}

func Prompt(message string) []byte {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("%s: \n", message)
	fmt.Printf(userPrompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal(err)
	}

	return []byte(response)
}
