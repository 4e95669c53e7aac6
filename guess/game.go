// Package guess implements the console number-guessing game.
package guess

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrFormat is returned when a guess is not an integer.
	ErrFormat = errors.New("guess is not an integer")
	// ErrBounds is returned when Min is greater than Max.
	ErrBounds = errors.New("invalid guess range")
)

// Rand is the random stream the secret number is drawn from.
type Rand interface {
	IntN(n int) int
}

// Session plays rounds until the player declines to continue.
type Session struct {
	In   io.Reader
	Out  io.Writer
	Rand Rand
	Min  int // defaults to 1
	Max  int // defaults to 100
}

// Run plays rounds until the player answers "n". It returns the number of
// rounds started. Input errors end the session with a message on Out.
func (s *Session) Run() (int, error) {
	sc := bufio.NewScanner(s.In)
	plays, err := s.loop(sc)
	if err != nil {
		if errors.Is(err, ErrFormat) {
			fmt.Fprintln(s.Out, "格式錯誤")
		} else {
			fmt.Fprintln(s.Out, err)
		}
		fmt.Fprintln(s.Out, "應用程式中斷")
		return plays, err
	}

	fmt.Fprintf(s.Out, "您共玩了%d次\n", plays)
	fmt.Fprintln(s.Out, "遊戲結束")
	return plays, nil
}

func (s *Session) loop(sc *bufio.Scanner) (int, error) {
	if lo, hi := s.bounds(); lo > hi {
		return 0, fmt.Errorf("%w: %d~%d", ErrBounds, lo, hi)
	}

	plays := 0
	for {
		plays++
		if _, err := s.round(sc); err != nil {
			return plays, err
		}

		fmt.Fprint(s.Out, "您還要繼續嗎(y,n)?")
		answer, err := readLine(sc)
		if err != nil {
			return plays, err
		}
		if answer == "n" {
			return plays, nil
		}
	}
}

// round plays a single game and returns the number of guesses it took.
func (s *Session) round(sc *bufio.Scanner) (int, error) {
	lo, hi := s.bounds()
	secret := lo + s.Rand.IntN(hi-lo+1)

	fmt.Fprintln(s.Out, "===============猜數字遊戲=================")
	attempts := 0
	for {
		fmt.Fprintf(s.Out, "猜數字範圍%d~%d:", lo, hi)
		line, err := readLine(sc)
		if err != nil {
			return attempts, err
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return attempts, fmt.Errorf("%w: %q", ErrFormat, line)
		}
		attempts++

		switch {
		case n == secret:
			fmt.Fprintf(s.Out, "賓果!猜對了, 答案是%d\n", secret)
			fmt.Fprintf(s.Out, "您猜了%d次\n", attempts)
			return attempts, nil
		case n < secret:
			fmt.Fprintln(s.Out, "再大一點")
			lo = max(lo, n+1)
		default:
			fmt.Fprintln(s.Out, "再小一點")
			hi = min(hi, n-1)
		}
		fmt.Fprintf(s.Out, "您已經猜了%d次\n", attempts)
	}
}

func (s *Session) bounds() (int, int) {
	lo, hi := s.Min, s.Max
	if lo == 0 && hi == 0 {
		lo, hi = 1, 100
	}
	return lo, hi
}

func readLine(sc *bufio.Scanner) (string, error) {
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(sc.Text()), nil
}
