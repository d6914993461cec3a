package main

import (
	"github.com/shouni/go-comic-kit/cmd"
)

// main はアプリケーションの唯一のエントリーポイントなのだ！
// フラグの解析もサブコマンドの実行も cmd パッケージに任せるのだ。
func main() {
	cmd.Execute()
}
